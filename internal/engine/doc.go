// Package engine implements the pagesweep loop driver.
//
// The engine walks a fixed global time range against a source that caps
// page size and offers no resume cursor. It infers each next window from the
// last record it received and appends what it keeps to a sink as it goes.
//
// ARCHITECTURE:
//
// Single-Goroutine Loop:
// Run() is an explicit iterative state machine with two states, Fetching and
// Done. Each iteration is strictly sequential:
//  1. Check the window is usable
//  2. Fetch one page for (cursor, global end)
//  3. Drop records not strictly after the cursor (overlap filter)
//  4. Append the kept records to the sink, closing the output on the last page
//  5. Stop if the page length differs from the page size, otherwise advance
//     the cursor to the last record's stamp and loop
//
// No fetch overlaps another and no append overlaps the fetch that fed it, so
// RunState needs no locking.
//
// CURSOR RULES:
//
// Requery at the last instant:
// The next window starts AT the last record's stamp, not one tick after it,
// with the zone relabeled as UTC and the original fractional digits kept.
// This deliberate one-record overlap tolerates sources that round stamps.
//
// Strict-after filtering:
// A record is kept only if it is strictly after the start of the window that
// fetched it. Two distinct records sharing a stamp across a page boundary can
// therefore be lost; this is accepted, not corrected.
//
// Completion:
// A page whose length is not equal to the page size ends the run, including
// the contract violation of a page longer than the cap.
//
// Errors are never retried. The first failure of any kind ends the run and
// leaves the output unterminated.
package engine
