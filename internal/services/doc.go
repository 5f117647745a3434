// Package services implements the application service layer between the
// HTTP transport and the merge pipeline packages. The central type is
// MergeService, which owns the in-memory session store: each session holds
// the result of merging one POS file with one supplier file, plus the
// current view after any transformations.
package services
