// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package sys

import (
	"log"
	"net"
	"os"
	"strings"
)

// GetHostnameAndIP makes a best effort at determining this computer's host
// name (FQDN preferred) and IP address. The editor's add-host command
// suggests the result as a default when the operator doesn't name a host
// explicitly.
func GetHostnameAndIP() (hostname string, ip string) {
	var err error
	if hostname, err = os.Hostname(); err != nil {
		log.Printf("GetHostnameAndIP: cannot determine system host name - %v", err)
	}
	addrs, err := net.LookupIP(hostname)
	if err == nil {
		var addressText string
		for _, addr := range addrs {
			b, err := addr.MarshalText()
			if err != nil {
				continue
			}
			addressText = string(b)
			if fqdn, err := net.LookupAddr(addressText); err == nil && len(fqdn) > 0 {
				hostname = fqdn[0]
				if ip == "" {
					ip = addressText
				}
				break
			}
		}
		if ip == "" {
			ip = addressText
		}
	}
	hostname = strings.TrimSuffix(hostname, ".")
	ip = strings.TrimSuffix(ip, ".")
	return
}
