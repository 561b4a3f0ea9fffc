// Package madj reads and writes MADJ container files.
package madj

// MADJ container for storing interleaved media tracks.
// All multi-byte integers are big-endian.
//
// <name>.mjv:
//   magic      uint32 "MADJ"
//   version    uint32
//   trackCount uint32
//   trackCount times:
//     frameCount        uint64
//     subframesPerFrame uint64
//     dataBaseOffset    uint64 // Absolute offset of the track's payload region.
//     rateNum           uint32
//     rateDen           uint32
//     codecKind         uint32 // 0=video, 1=audio.
//     codecID           uint32
//     if video:
//       width, height, displayWidth, displayHeight, pixelFormat uint32
//     if audio:
//       sampleRate, channelCount, bitsPerSample uint32
//     frameIndex        [frameCount]indexEntry
//   trackCount times:
//     frame payloads, concatenated in frame-index order.
//
// indexEntry { // 8 bytes.
//   size   uint24 // Frame payload length.
//   offset uint40 // Relative to dataBaseOffset.
// }
//
// Version 1 files carry a string parameter dictionary per track
// (paramCount uint32, then length-prefixed key/value pairs) instead of
// the fixed codec fields. They can be read but are no longer written.
