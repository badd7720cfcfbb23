package main

import (
	"fmt"
	"strings"

	"github.com/existflow/ironboard/internal/devapi"
	"github.com/existflow/ironboard/internal/model"
)

// seedDemo creates a user from "username:email:password" with one
// sample project
func seedDemo(srv *devapi.Server, creds string) error {
	parts := strings.SplitN(creds, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("DEV_USER must be username:email:password")
	}
	user, err := srv.SeedUser(parts[0], parts[1], parts[2])
	if err != nil {
		return err
	}
	p := srv.SeedProject("Demo", user.ID)
	samples := []model.Item{
		{Title: "Write onboarding doc", Status: model.StatusTodo, Priority: model.PriorityMedium},
		{Title: "Fix login redirect", Type: model.TypeBug, Status: model.StatusInProgress, Priority: model.PriorityHigh},
		{Title: "Review board layout", Status: model.StatusInReview},
		{Title: "Set up project", Status: model.StatusDone, Priority: model.PriorityLow},
	}
	for _, it := range samples {
		it.ReporterID = user.ID
		srv.SeedItem(p.ID, it)
	}
	return nil
}
