package utils

// Inspired from: https://gist.github.com/jim3ma/3750675f141669ac4702bc9deaf31c6b

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/net/proxy"
)

type direct struct{}

// Direct is a direct proxy: one that makes network connections directly.
var Direct = direct{}

func (direct) Dial(network, addr string) (net.Conn, error) {
	return net.Dial(network, addr)
}

// httpProxy is an HTTP/HTTPS connect proxy.
type httpProxy struct {
	host     string
	haveAuth bool
	username string
	password string
	forward  proxy.Dialer
}

func newHTTPProxy(uri *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	s := new(httpProxy)
	s.host = uri.Host
	s.forward = forward
	if uri.User != nil {
		s.haveAuth = true
		s.username = uri.User.Username()
		s.password, _ = uri.User.Password()
	}

	return s, nil
}

func (s *httpProxy) Dial(_, addr string) (net.Conn, error) {
	c, err := s.forward.Dial("tcp", s.host)
	if err != nil {
		return nil, fmt.Errorf("dial proxy: %w", err)
	}

	// HACK. http.ReadRequest also does this.
	reqURL, err := url.Parse("http://" + addr)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("parse addr: %w", err)
	}
	reqURL.Scheme = ""

	req, err := http.NewRequest(http.MethodConnect, reqURL.String(), nil)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create CONNECT request: %w", err)
	}
	req.Close = false
	if s.haveAuth {
		req.SetBasicAuth(s.username, s.password)
	}

	if err := req.Write(c); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("write CONNECT request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(c), req)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("read CONNECT response: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_ = c.Close()
		return nil, fmt.Errorf("CONNECT response: %s", resp.Status)
	}

	return c, nil
}

func init() {
	proxy.RegisterDialerType("http", newHTTPProxy)
	proxy.RegisterDialerType("https", newHTTPProxy)
}

// GetDialer returns a net.DialContext function that uses a proxy if necessary.
// HTTP_PROXY and HTTPS_PROXY are used to determine the proxy to use, HTTPS
// takes precedence. Without either, ALL_PROXY/NO_PROXY are honoured.
func GetDialer() func(context.Context, string, string) (net.Conn, error) {
	var proxyURI *url.URL
	for _, envVar := range []string{"HTTP_PROXY", "HTTPS_PROXY"} {
		if httpProxy := os.Getenv(envVar); httpProxy != "" {
			if uri, err := url.Parse(httpProxy); err == nil {
				proxyURI = uri
			}
		}
	}
	proxyNetDial := proxy.FromEnvironment()
	if proxyURI != nil {
		if dial, err := proxy.FromURL(proxyURI, Direct); err == nil {
			proxyNetDial = dial
		}
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := proxyNetDial.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return proxyNetDial.Dial(network, addr)
	}
}
