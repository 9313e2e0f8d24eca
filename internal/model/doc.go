// Package model defines the data structures shared by the pagerank packages.
//
// This package contains the following main types:
//   - RankReport: the result of one ranking run, with both estimates
//   - ConvergenceReport: sampler accuracy over a range of sample counts
//
// Models live in their own package because the pipeline, report and
// database packages all need them. They serialize to JSON for report output
// and database storage.
package model
