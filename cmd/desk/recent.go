package main

import (
	"fmt"

	"buyersdesk/recent"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show or clear recent searches",
	RunE:  runRecentList,
}

var recentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches, newest first",
	RunE:  runRecentList,
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent searches",
	RunE:  runRecentClear,
}

func recentStore() *recent.Store {
	return recent.NewStore(recent.NewFileStorage(cfg.Search.RecentFile))
}

func runRecentList(cmd *cobra.Command, args []string) error {
	items, err := recentStore().List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No recent searches.")
		return nil
	}
	for i, item := range items {
		fmt.Fprintf(out, "%d. %s\n", i+1, item)
	}
	return nil
}

func runRecentClear(cmd *cobra.Command, args []string) error {
	if err := recentStore().Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Recent searches cleared.")
	return nil
}
