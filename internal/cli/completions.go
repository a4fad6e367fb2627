package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// completeTaskIDs returns a completion function that lists task IDs,
// optionally filtered to exclude certain statuses. Deleted, archived and
// forwarded tasks are never offered.
func completeTaskIDs(excludeStatuses ...models.TaskStatus) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Engine == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.TaskStatus]bool)
		for _, s := range excludeStatuses {
			exclude[s] = true
		}

		var ids []string
		for _, task := range Engine.Board().Tasks() {
			if exclude[task.Status] || task.Deleted() || task.Archived() || task.Superseded() {
				continue
			}
			if toComplete == "" || strings.HasPrefix(task.ID, toComplete) {
				// Include the title as description for better UX.
				ids = append(ids, task.ID+"\t"+string(task.Status)+": "+task.Title)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completePlanIDs lists weekly plan ids with their week start.
func completePlanIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Engine == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, p := range Engine.Board().Plans() {
		if toComplete == "" || strings.HasPrefix(p.ID, toComplete) {
			ids = append(ids, p.ID+"\t"+p.WeekStart.Format("2006-01-02")+" "+p.Title)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeStepIDs lists formula step ids, highest rank first.
func completeStepIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Engine == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, s := range Engine.Board().Steps() {
		if toComplete == "" || strings.HasPrefix(s.ID, toComplete) {
			ids = append(ids, s.ID+"\t"+s.Name)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completePriorities returns a completion function for priority values.
func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"high\tDo first",
		"medium\tNormal",
		"low\tWhen there is time",
		"none\tUnprioritised",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses returns a completion function for task status values.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"todo\tNot started",
		"in_progress\tActively being worked on",
		"complete\tFinished",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeFrequencies returns a completion function for recurrence values.
func completeFrequencies(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"daily", "weekly", "monthly"}, cobra.ShellCompDirectiveNoFileComp
}

// completeAlertKinds returns a completion function for alert kinds.
func completeAlertKinds(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"overdue\tDue time has passed",
		"reminder\tReminder time reached",
	}, cobra.ShellCompDirectiveNoFileComp
}
