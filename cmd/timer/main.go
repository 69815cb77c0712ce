// Command timer is a terminal focus timer that runs sessions against a
// focustrack server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"focustrack/internal/apiclient"
	"focustrack/internal/engine"
)

func main() {
	server := flag.String("server", envOrDefault("FOCUSTRACK_SERVER", "http://localhost:8080"), "server base URL")
	email := flag.String("email", os.Getenv("FOCUSTRACK_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("FOCUSTRACK_PASSWORD"), "account password")
	activityID := flag.Int64("activity", 0, "activity id to run a session for (0 lists activities)")
	description := flag.String("desc", "", "what this session is for")
	resume := flag.Bool("resume", false, "resume the activity's saved session if one exists")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or FOCUSTRACK_EMAIL / FOCUSTRACK_PASSWORD)")
	}

	ctx := context.Background()
	client := apiclient.New(*server)
	if err := client.Login(ctx, *email, *password); err != nil {
		log.Fatal("login: ", err)
	}

	if *activityID == 0 {
		listActivities(ctx, client)
		return
	}

	store, err := engine.NewSnapshotStore("")
	if err != nil {
		log.Fatal("open snapshot store: ", err)
	}

	ctrl := engine.NewController(client, store, engine.SystemClock(), engine.Options{
		ResumeFromSnapshot: *resume,
	})
	if err := ctrl.Begin(ctx, *activityID, *description); err != nil {
		log.Fatal("begin session: ", err)
	}
	if ctrl.Resumed() {
		fmt.Println("Resuming saved session...")
	}

	p := tea.NewProgram(newModel(ctrl, *description), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

func listActivities(ctx context.Context, client *apiclient.Client) {
	activities, err := client.ListActivities(ctx)
	if err != nil {
		log.Fatal("list activities: ", err)
	}
	if len(activities) == 0 {
		fmt.Println("No activities yet. Create one through the API first.")
		return
	}
	fmt.Println("Activities:")
	for _, a := range activities {
		fmt.Printf("  %3d  %-30s %2d min plan, %d break(s) of %d min, streak %d\n",
			a.ID, a.Title, a.TotalTime, a.BreakCount, a.BreakMinutes, a.StreakCount)
	}
	fmt.Println("\nRun again with -activity <id> to start a session.")
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
