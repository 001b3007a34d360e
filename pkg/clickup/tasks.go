package clickup

import (
	"context"

	"github.com/rotisserie/eris"
)

// AllTasks pages through a list until an empty page, optionally filtered to
// one status. Subtasks are included, oldest first.
func AllTasks(ctx context.Context, c Client, listID, status string) ([]Task, error) {
	opts := ListTasksOptions{OrderBy: "created", Subtasks: true}
	if status != "" {
		opts.Statuses = []string{status}
	}

	var all []Task
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "clickup: all tasks")
		}
		opts.Page = page
		tasks, err := c.ListTasks(ctx, listID, opts)
		if err != nil {
			return nil, eris.Wrap(err, "clickup: all tasks")
		}
		if len(tasks) == 0 {
			return all, nil
		}
		all = append(all, tasks...)
	}
}
