package utils

import "sync"

// NoCopy prevents copying structs by accident. Adding it to a struct will cause go vet to flag it as an error when
// you try to copy the struct. This is inspired by sync.noCopy which is used in several concurrency primitives but
// not publicly exposed.
//
// Segments, scanners and the commit log embed it, because they own file handles and locks which must not be shared
// by value.
type NoCopy struct{}

// NoCopy implements sync.Locker
var _ sync.Locker = (*NoCopy)(nil)

func (n *NoCopy) Lock() {}

func (n *NoCopy) Unlock() {}
