package feed

import (
	"runtime"
)

const (
	ClientID      = "NuGet.Client.Push/"
	ClientVersion = "6.9.0"
	OSName        = runtime.GOOS
	Arch          = runtime.GOARCH
)

func BuildUserAgent() string {
	return ClientID + ClientVersion + " (" + OSName + "; arch " + Arch + "; " + runtime.Version() + ")"
}
