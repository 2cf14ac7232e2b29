package client

import "errors"

var (
	errNoMDSAddress    = errors.New("metacache: no metadata service address configured")
	errNoGroupEndpoint = errors.New("metacache: group probe endpoint is empty")
)
