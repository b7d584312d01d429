// Package conflict holds data conflicts detected by the sync transport and
// resolves them under one of three strategies: keep the local version, keep
// the remote version, or shallow-merge with local fields winning.
//
// The merge strategy is deliberately simple: field-level last-writer-wins
// with local always treated as more recent. It can combine changes from
// both sides into a record neither caregiver intended; the resolution
// dialog exists precisely so a human picks the strategy per conflict.
package conflict
