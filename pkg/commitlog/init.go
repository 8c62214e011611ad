package commitlog

import intcommitlog "github.com/backbone81/durable-log/internal/commitlog"

// IsInitialized reports if there is already a commit log available in the given directory.
var IsInitialized = intcommitlog.IsInitialized

// Init initializes a new commit log in the given directory.
var Init = intcommitlog.Init

// InitIfRequired initializes the commit log if it is not yet initialized.
var InitIfRequired = intcommitlog.InitIfRequired
