// Package tenor turns tenor.com permalinks into directly fetchable media URLs.
//
// With an API key the client queries the Tenor v2 posts endpoint. Without one
// it reads the permalink page and takes the Open Graph media tags, which is
// slower and less stable but keeps the resolver working for operators who
// never registered a key.
package tenor
