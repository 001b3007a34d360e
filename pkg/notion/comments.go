package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// AllComments returns every comment on a page, oldest first.
func AllComments(ctx context.Context, c Client, pageID string) ([]notionapi.Comment, error) {
	var all []notionapi.Comment
	cursor := ""
	for {
		resp, err := c.ListComments(ctx, pageID, cursor)
		if err != nil {
			return nil, eris.Wrap(err, "notion: all comments")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = string(resp.NextCursor)
	}
}

// CommentText joins the plain text of a comment's rich-text runs.
func CommentText(c notionapi.Comment) string {
	return PlainText(c.RichText)
}

// PlainText concatenates the plain text of rich-text runs.
func PlainText(rt []notionapi.RichText) string {
	var out string
	for _, r := range rt {
		out += r.PlainText
	}
	return out
}
