// Package main provides the entry point for the pagerank CLI.
//
// pagerank ranks the pages of a directory of HTML files by how likely a
// random surfer is to visit them. It computes the ranks twice, once by
// sampling random walks and once with an iterative solver, and prints both.
//
// Usage:
//
//	pagerank <corpus>
//	pagerank converge <corpus>
//	pagerank history [corpus]
//
// See --help for all available options.
package main

// main is the entry point for pagerank.
func main() {
	Execute()
}
