package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/logging"
	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/content"
	"github.com/goliatone/go-vitalpress/pkg/editor"
	"github.com/goliatone/go-vitalpress/pkg/post"
	"github.com/goliatone/go-vitalpress/pkg/validation"
)

func newPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage posts on the content service",
	}
	cmd.AddCommand(newPostsListCmd(), newPostsNewCmd(), newPostsDeleteCmd())
	return cmd
}

// withBackend runs fn against an uncached client.
func withBackend(cmd *cobra.Command, fn func(context.Context, api.Backend) error) error {
	c := cfg
	c.Cache.Driver = "none"
	svc, err := newServices(cmd.Context(), c, nil)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(cmd.Context(), svc.backend)
}

func newPostsListCmd() *cobra.Command {
	var position string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, optionally for one position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var pos post.Position
			if position != "" {
				parsed, err := post.ParsePosition(position)
				if err != nil {
					return err
				}
				pos = parsed
			}
			return withBackend(cmd, func(ctx context.Context, backend api.Backend) error {
				posts, err := backend.ListPosts(ctx, pos)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), posts)
				}
				return writePostTable(cmd.OutOrStdout(), posts)
			})
		},
	}
	cmd.Flags().StringVar(&position, "position", "", "Only list posts in this position")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the posts as JSON")
	return cmd
}

func writePostTable(w io.Writer, posts []post.Post) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOSITION\tDATE\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Position, p.Meta.Date, p.Title)
	}
	return tw.Flush()
}

func newPostsNewCmd() *cobra.Command {
	var generate bool
	var prompt string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write a post interactively and publish it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, backend api.Backend) error {
				return runPostsNew(ctx, cmd.OutOrStdout(), backend, newPrompter(), generate, prompt)
			})
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "Fill empty sections with generated content before publishing")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extra guidance for generation")
	return cmd
}

func runPostsNew(ctx context.Context, out io.Writer, backend api.Backend, p prompter, generate bool, prompt string) error {
	ed, err := collectPost(ctx, p)
	if err != nil {
		return err
	}
	if generate {
		draft := ed.Post()
		generated, err := backend.Generate(ctx, api.GenerateRequest{
			Title:    draft.Title,
			Position: draft.Position,
			Keywords: draft.Keywords(),
			Prompt:   prompt,
		})
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		ed.Merge(generated)
		fmt.Fprintln(out, "Generated content was added to the empty sections.")
	}

	draft := ed.Post()
	if err := content.Default().FillReadTime(&draft); err != nil {
		logging.API().Debug("read time", "error", err)
	}
	if err := checkPost(ctx, ed, draft); err != nil {
		return err
	}

	publish, err := p.Confirm(ctx, fmt.Sprintf("Publish %q?", draft.Title), true)
	if err != nil {
		return err
	}
	if !publish {
		fmt.Fprintln(out, "Nothing was published.")
		return nil
	}
	saved, err := backend.CreatePost(ctx, draft)
	if err != nil {
		if fields := api.FieldErrors(err); len(fields) > 0 {
			return fmt.Errorf("the content service rejected the post: %s", describeIssues(fields))
		}
		return err
	}
	fmt.Fprintf(out, "Published %s (%s)\n", saved.ID, saved.Title)
	return nil
}

// checkPost applies the same editor and contract rules as the admin form.
func checkPost(ctx context.Context, ed *editor.Editor, p post.Post) error {
	issues := ed.Check()
	validator, err := validation.New(ctx, contract.MustRead(contract.Backend))
	if err != nil {
		return err
	}
	result, err := validator.Validate(ctx, contract.OpCreatePost, p)
	if err != nil {
		return err
	}
	for path, messages := range result.Fields() {
		if issues == nil {
			issues = map[string][]string{}
		}
		issues[path] = append(issues[path], messages...)
	}
	if len(issues) > 0 {
		return fmt.Errorf("post is not valid: %s", describeIssues(issues))
	}
	return nil
}

func describeIssues(issues map[string][]string) string {
	parts := make([]string, 0, len(issues))
	for path, messages := range issues {
		parts = append(parts, path+": "+strings.Join(messages, ", "))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func newPostsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				ok, err := newPrompter().Confirm(cmd.Context(), fmt.Sprintf("Delete post %s?", id), false)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			return withBackend(cmd, func(ctx context.Context, backend api.Backend) error {
				if err := backend.DeletePost(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation")
	return cmd
}
