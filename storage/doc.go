// Package storage stores uploaded files (enterprise documents, avatars) behind
// a provider-neutral interface.
//
// Providers register themselves in init; import the ones you need:
//
//	import (
//	    _ "github.com/entadmin/adminkit/storage/local"
//	    _ "github.com/entadmin/adminkit/storage/s3"
//	    _ "github.com/entadmin/adminkit/storage/supabase"
//	)
//
//	store, err := storage.New(cfg, log)
package storage
