// Package container implements the FS bundle container: the outer header,
// the block-info table (chunk descriptors and named entries), reconstruction
// of the flattened payload from independently-compressed chunks, and the
// two-phase emitter.
//
// # Layout
//
//	signature      NUL-terminated ("UnityFS")
//	version        int32
//	engine version NUL-terminated
//	engine revision NUL-terminated
//	int64  total size
//	int32  compressed block-info size
//	int32  block-info size
//	uint32 flags
//	[16-byte align if version >= 7 and the table is not at the end]
//	compressed block-info table
//	[16-byte align if FlagBlockInfoNeedsPadding]
//	payload chunks
//
// Entry offsets address the flattened payload, the concatenation of every
// decompressed chunk in declared order. A file may start mid-chunk and span
// several chunks; PayloadReader only decodes the chunks a range touches.
//
// # Emitting
//
// Compressed sizes are unknown until encoding completes, so emission runs in
// two phases: BuildLayout encodes every chunk and the table in memory, then
// WriteLayout writes a zeroed header placeholder, the table and the data, and
// PatchHeader seeks back to fill in the sizes.
package container
