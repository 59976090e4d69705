// Package record provides the foundation types shared by every pagesweep
// package: query windows, source records, pages and journal entries.
//
// This package contains type definitions and the timestamp rules only.
// All other internal packages import record; record imports nothing internal.
//
// Key design constraints:
//   - Record payloads are carried as raw JSON and never re-encoded, so key
//     order and number formatting survive the round trip to the output file
//   - Only the "stamp" field of a record is ever inspected
//   - Timestamps are compared as instants, rendered with their original
//     sub-second digit count
package record
