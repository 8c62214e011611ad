package commitlog

import intcommitlog "github.com/backbone81/durable-log/internal/commitlog"

// Iterator returns the records of the commit log in ascending offset order. It is created by Log.ReadFrom and stops
// at the commit pointer at the time of its creation.
//
// Instances of Iterator are NOT safe to use concurrently. You need to provide external synchronization.
type Iterator = intcommitlog.Iterator

// Record is a record returned by the Iterator.
type Record = intcommitlog.Record
