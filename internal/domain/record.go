package domain

import "time"

// PostCollection is the collection whose create operations are treated as posts.
const PostCollection = "app.bsky.feed.post"

// Record is the decoded content of a post block.
type Record struct {
	// Type is the record's $type, normally PostCollection.
	Type string

	// Text is the post body.
	Text string

	// CreatedAt is the author-supplied creation timestamp.
	CreatedAt time.Time

	// Langs lists the declared post languages, if any.
	Langs []string

	// ReplyTo is the at:// URI of the parent post. Empty for top-level posts.
	ReplyTo string
}

// IsReply reports whether the record answers another post.
func (r Record) IsReply() bool {
	return r.ReplyTo != ""
}

// Post is a decoded record plus where it came from. It is what sinks receive.
type Post struct {
	// Author is the DID of the posting repository.
	Author string

	// AuthorHandle is the author's handle when a subscription named it.
	AuthorHandle string

	// Path is the repository path of the record ("<collection>/<rkey>").
	Path string

	// Record is the decoded content.
	Record Record
}

// AuthorName returns the handle if known, otherwise the DID.
func (p Post) AuthorName() string {
	if p.AuthorHandle != "" {
		return p.AuthorHandle
	}
	return p.Author
}

// URI returns the at:// URI of the post.
func (p Post) URI() string {
	return "at://" + p.Author + "/" + p.Path
}
