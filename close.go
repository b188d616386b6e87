package coldb

import "context"

// Close syncs and releases the underlying Allocator (and backend, if
// any). Safe to call once; the DB must not be used afterward.
func (db *DB) Close() error {
	var err error
	if db.backend != nil {
		err = db.backend.Sync()
	}
	if cerr := db.alloc.Close(); err == nil {
		err = cerr
	}
	db.opts.logger.LogClose(context.Background(), err)
	return translateError(err)
}
