// Package corpus loads a directory of HTML pages into a link graph.
//
// Every file ending in .html directly inside the directory is a page; its
// name is the page identifier. Links are the href attributes of <a>
// elements, parsed with golang.org/x/net/html. A link counts only when it
// names another page of the same directory: self links, absolute URLs and
// links to missing files are dropped before the graph is built.
//
// Page names and link targets are normalised to Unicode NFC so that a file
// name stored decomposed on disk still matches an href written composed.
//
// # Usage
//
//	c, err := corpus.Load("corpus0", corpus.WithIgnorePatterns([]string{"draft-*"}))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(c.Graph.Pages())
package corpus
