// ABOUTME: Posts commands for the blogpanel CLI
// ABOUTME: Lists, shows, creates, updates and deletes blog posts

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/markalston/blogpanel/internal/client"
)

var (
	postsSkip     int
	postsLimit    int
	postsClientID int
	postsStatus   string
	postsSearch   string

	postClientID        int
	postTitle           string
	postSlug            string
	postContent         string
	postContentFile     string
	postTags            string
	postCategory        string
	postFeaturedImage   string
	postMetaDescription string
	postStatus          string
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage blog posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runPostsList(ctx, os.Stdout, &client.ListPostsParams{
				Skip:     postsSkip,
				Limit:    postsLimit,
				ClientID: postsClientID,
				Status:   postsStatus,
				Search:   postsSearch,
			})
		})
	},
}

var postsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runPostsGet(ctx, os.Stdout, args[0])
		})
	},
}

var postsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a post",
	Long: `Create a post for a client. The body comes from --content or --content-file
(use - to read stdin). Status defaults to draft on the backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			content, err := readContent(postContent, postContentFile, os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stdout, "Error: %v\n", err)
				return exitError
			}
			return runPostsCreate(ctx, os.Stdout, client.BlogPostInput{
				ClientID:        postClientID,
				Title:           postTitle,
				Content:         content,
				Slug:            postSlug,
				Tags:            postTags,
				Category:        postCategory,
				FeaturedImage:   postFeaturedImage,
				MetaDescription: postMetaDescription,
				Status:          postStatus,
			})
		})
	},
}

var postsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change fields of a post",
	Long:  `Change fields of a post. Only the flags given are sent; everything else is left as is.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			update, err := updateFromFlags(cmd, os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stdout, "Error: %v\n", err)
				return exitError
			}
			return runPostsUpdate(ctx, os.Stdout, args[0], update)
		})
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runPostsDelete(ctx, os.Stdout, args[0])
		})
	},
}

func init() {
	postsListCmd.Flags().IntVar(&postsSkip, "skip", 0, "Number of posts to skip")
	postsListCmd.Flags().IntVar(&postsLimit, "limit", 0, "Maximum number of posts (default: backend default)")
	postsListCmd.Flags().IntVar(&postsClientID, "client-id", 0, "Only posts for this client")
	postsListCmd.Flags().StringVar(&postsStatus, "status", "", "Only posts with this status (e.g. draft, published)")
	postsListCmd.Flags().StringVar(&postsSearch, "search", "", "Search titles and content")

	addPostFlags(postsCreateCmd)
	addPostFlags(postsUpdateCmd)
	postsCreateCmd.Flags().IntVar(&postClientID, "client-id", 0, "Client that owns the post")
	_ = postsCreateCmd.MarkFlagRequired("client-id")
	_ = postsCreateCmd.MarkFlagRequired("title")
	_ = postsCreateCmd.MarkFlagRequired("slug")

	postsCmd.AddCommand(postsListCmd, postsGetCmd, postsCreateCmd, postsUpdateCmd, postsDeleteCmd)
	rootCmd.AddCommand(postsCmd)
}

// addPostFlags registers the post field flags shared by create and update
func addPostFlags(c *cobra.Command) {
	c.Flags().StringVar(&postTitle, "title", "", "Post title")
	c.Flags().StringVar(&postSlug, "slug", "", "URL slug")
	c.Flags().StringVar(&postContent, "content", "", "Post body")
	c.Flags().StringVar(&postContentFile, "content-file", "", "Read the post body from a file (- for stdin)")
	c.Flags().StringVar(&postTags, "tags", "", "Comma-separated tags")
	c.Flags().StringVar(&postCategory, "category", "", "Category")
	c.Flags().StringVar(&postFeaturedImage, "featured-image", "", "Featured image URL")
	c.Flags().StringVar(&postMetaDescription, "meta-description", "", "Meta description")
	c.Flags().StringVar(&postStatus, "status", "", "Status (draft|published)")
	c.MarkFlagsMutuallyExclusive("content", "content-file")
}

// runPostsList lists posts and returns exit code
func runPostsList(ctx context.Context, w io.Writer, params *client.ListPostsParams) int {
	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	posts, err := e.api.ListPosts(ctx, params)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, posts)
	}
	fmt.Fprintln(w, formatPostsHuman(posts, time.Now()))
	return exitOK
}

// runPostsGet shows one post and returns exit code
func runPostsGet(ctx context.Context, w io.Writer, rawID string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	post, err := e.api.GetPost(ctx, id)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, post)
	}
	fmt.Fprintln(w, formatPostHuman(post))
	return exitOK
}

// runPostsCreate creates a post and returns exit code
func runPostsCreate(ctx context.Context, w io.Writer, input client.BlogPostInput) int {
	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	post, err := e.api.CreatePost(ctx, input)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, post)
	}
	fmt.Fprintf(w, "Created post %d: %s [%s]\n", post.ID, post.Title, post.Status)
	return exitOK
}

// runPostsUpdate applies a partial update and returns exit code
func runPostsUpdate(ctx context.Context, w io.Writer, rawID string, update client.BlogPostUpdate) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	post, err := e.api.UpdatePost(ctx, id, update)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, post)
	}
	fmt.Fprintf(w, "Updated post %d: %s [%s]\n", post.ID, post.Title, post.Status)
	return exitOK
}

// runPostsDelete deletes a post and returns exit code
func runPostsDelete(ctx context.Context, w io.Writer, rawID string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	resp, err := e.api.DeletePost(ctx, id)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, resp)
	}
	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("Deleted post %d", id)
	}
	fmt.Fprintln(w, msg)
	return exitOK
}

// updateFromFlags builds an update from the flags the user actually passed
func updateFromFlags(cmd *cobra.Command, stdin io.Reader) (client.BlogPostUpdate, error) {
	var u client.BlogPostUpdate
	flags := cmd.Flags()

	set := func(name string, value string, dst **string) {
		if flags.Changed(name) {
			*dst = client.String(value)
		}
	}
	set("title", postTitle, &u.Title)
	set("slug", postSlug, &u.Slug)
	set("content", postContent, &u.Content)
	set("tags", postTags, &u.Tags)
	set("category", postCategory, &u.Category)
	set("featured-image", postFeaturedImage, &u.FeaturedImage)
	set("meta-description", postMetaDescription, &u.MetaDescription)
	set("status", postStatus, &u.Status)

	if flags.Changed("content-file") {
		content, err := readContent("", postContentFile, stdin)
		if err != nil {
			return u, err
		}
		u.Content = client.String(content)
	}
	return u, nil
}

// readContent returns inline content, or reads it from path ("-" is stdin)
func readContent(inline, path string, stdin io.Reader) (string, error) {
	if path == "" {
		return inline, nil
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

// formatPostsHuman renders posts as a table
func formatPostsHuman(posts []client.BlogPost, now time.Time) string {
	if len(posts) == 0 {
		return "No posts."
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "CLIENT", "STATUS", "CREATED")
	for _, p := range posts {
		owner := "#" + strconv.Itoa(p.ClientID)
		if p.Client != nil && p.Client.Name != "" {
			owner = p.Client.Name
		}
		t.Row(strconv.Itoa(p.ID), p.Title, owner, p.Status, relTime(p.CreatedAt, now))
	}
	return t.String()
}

// formatPostHuman formats one post for human readability
func formatPostHuman(p *client.BlogPost) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID:       %d\n", p.ID)
	fmt.Fprintf(&sb, "Title:    %s\n", p.Title)
	fmt.Fprintf(&sb, "Slug:     %s\n", p.Slug)
	fmt.Fprintf(&sb, "Status:   %s\n", p.Status)
	if p.Client != nil {
		fmt.Fprintf(&sb, "Client:   %s (%s)\n", p.Client.Name, p.Client.Domain)
	} else {
		fmt.Fprintf(&sb, "Client:   #%d\n", p.ClientID)
	}
	if p.Author != nil {
		fmt.Fprintf(&sb, "Author:   %s\n", p.Author.Username)
	}
	if p.Category != "" {
		fmt.Fprintf(&sb, "Category: %s\n", p.Category)
	}
	if p.Tags != "" {
		fmt.Fprintf(&sb, "Tags:     %s\n", p.Tags)
	}
	fmt.Fprintf(&sb, "Created:  %s\n", formatTimestamp(p.CreatedAt))
	if p.UpdatedAt != nil {
		fmt.Fprintf(&sb, "Updated:  %s\n", formatTimestamp(*p.UpdatedAt))
	}
	sb.WriteString("\n")
	sb.WriteString(p.Content)
	return sb.String()
}
