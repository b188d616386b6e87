// Package pagemap implements coldb's encrypted, page-granular file
// mapping: a process-wide registry of SharedFileInfo (one per physical
// file, identified by (device, inode) on POSIX or a stable per-handle id
// on Windows) and, per open handle, an EncryptedFileMapping that lazily
// decrypts pages on read and tracks dirty pages for write-back.
//
// Multiple EncryptedFileMappings can be open over the same physical file
// (e.g. a table opened twice in the same process, or a long-lived reader
// alongside the writer). Coherence across them is maintained without
// shared mutable pages: a write barrier on one mapping marks the touched
// pages outdated on every sibling mapping of the same SharedFileInfo,
// flushing any sibling that had those pages dirty first so no write is
// lost.
package pagemap
