// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package useragent

import (
	"strings"
	"testing"
)

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
	edgeUA          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
	firefoxUA       = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	safariMacUA     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
	ipadUA          = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	androidPhoneUA  = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36"
	androidTabletUA = "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	ieUA            = "Mozilla/5.0 (Windows NT 6.1; Trident/7.0; rv:11.0) like Gecko"
)

func TestClassifyBrowser(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{name: "chrome beats safari marker", ua: chromeDesktopUA, want: BrowserChrome},
		{name: "edge beats chrome marker", ua: edgeUA, want: BrowserEdge},
		{name: "firefox", ua: firefoxUA, want: BrowserFirefox},
		{name: "safari", ua: safariMacUA, want: BrowserSafari},
		{name: "internet explorer via trident", ua: ieUA, want: BrowserIE},
		{name: "firefox ios", ua: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) FxiOS/115.0 Mobile/15E148 Safari/605.1.15", want: BrowserFirefox},
		{name: "empty string", ua: "", want: BrowserUnknown},
		{name: "curl", ua: "curl/8.4.0", want: BrowserUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ua).Browser; got != tt.want {
				t.Errorf("Classify(%q).Browser = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Device
	}{
		{name: "ipad is tablet", ua: ipadUA, want: DeviceTablet},
		{name: "android without mobi is tablet", ua: androidTabletUA, want: DeviceTablet},
		{name: "android with mobile is mobile", ua: androidPhoneUA, want: DeviceMobile},
		{name: "iphone is mobile", ua: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 Version/16.6 Mobile/15E148 Safari/604.1", want: DeviceMobile},
		{name: "plain desktop", ua: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/115.0.0.0 Safari/537.36", want: DeviceDesktop},
		{name: "kindle silk is tablet", ua: "Mozilla/5.0 (Linux; Android 9; KFTRWI) AppleWebKit/537.36 Silk/112.4.1 Chrome/112.0.0.0 Safari/537.36", want: DeviceTablet},
		{name: "empty string is desktop", ua: "", want: DeviceDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ua).Device; got != tt.want {
				t.Errorf("Classify(%q).Device = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{name: "chrome five chars", ua: chromeDesktopUA, want: "115.0"},
		{name: "firefox full version", ua: firefoxUA, want: "121.0"},
		{name: "safari version marker", ua: safariMacUA, want: "17.1"},
		{name: "unknown browser", ua: "curl/8.4.0", want: UnknownVersion},
		{name: "trident has no version rule", ua: ieUA, want: UnknownVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ua).Version; got != tt.want {
				t.Errorf("Classify(%q).Version = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestChromeVersionPrefixProperty(t *testing.T) {
	// Spot check from the reporting contract: a Chrome 115 user agent must
	// classify as Chrome with a version starting "115.0".
	res := Classify(chromeDesktopUA)
	if res.Browser != BrowserChrome {
		t.Errorf("Browser = %q, want %q", res.Browser, BrowserChrome)
	}
	if !strings.HasPrefix(res.Version, "115.0") {
		t.Errorf("Version = %q, want prefix 115.0", res.Version)
	}
}
