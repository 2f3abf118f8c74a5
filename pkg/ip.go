package pkg

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

var localDockerIpRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1:\d{1,5}`)

func IPIsLocal(ipAddr string) bool {
	// local development
	if strings.HasPrefix(ipAddr, "127.0.0.1:") {
		return true
	}
	// request coming from within a docker container
	return localDockerIpRegex.MatchString(ipAddr)
}

// ReadUserIP returns the IP of the request originator, looking at the
// reverse proxy headers first.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		ipAddr = r.Header.Get("X-Forwarded-For")
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if IPIsLocal(ipAddr) {
		return "localhost", nil
	}

	if strings.Contains(ipAddr, ":") {
		host, _, err := net.SplitHostPort(ipAddr)
		if err != nil {
			return "", fmt.Errorf("split host and port from %s: %w", ipAddr, err)
		}
		ipAddr = host
	}

	if net.ParseIP(ipAddr) == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ipAddr, nil
}
