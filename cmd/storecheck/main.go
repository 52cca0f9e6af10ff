// Command storecheck probes a PostStore endpoint and prints a summary of
// what it finds. Useful when wiring up a new deployment to confirm the
// store is reachable and its payloads parse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/model"
	"github.com/inkwellapp/inkwell/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	baseURL := flag.String("store", "http://localhost:5000", "PostStore base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	readID := flag.String("read", "", "also fetch a single post by id")
	flag.Parse()

	if v := os.Getenv(config.EnvStoreBaseURL); v != "" && *baseURL == "http://localhost:5000" {
		*baseURL = v
	}

	client := store.NewRESTClient(*baseURL, *timeout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println(headerStyle.Render("Checking " + *baseURL + config.APIBlogsPath))

	start := time.Now()
	posts, err := client.List(ctx)
	if err != nil {
		fmt.Println(errStyle.Render("List failed: " + err.Error()))
		os.Exit(1)
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("Listed %d posts in %s", len(posts), time.Since(start).Round(time.Millisecond))))

	published, drafts := 0, 0
	for _, post := range posts {
		if post.Status == model.StatusDraft {
			drafts++
		} else {
			published++
		}
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("  %d published, %d drafts", published, drafts)))

	for i, post := range posts {
		if i == 5 {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  ... and %d more", len(posts)-i)))
			break
		}
		fmt.Printf("  %s %s\n", dimStyle.Render(string(post.ID)), post.DisplayTitle())
	}

	if *readID != "" {
		post, err := client.Get(ctx, model.PostID(*readID))
		if err != nil {
			fmt.Println(errStyle.Render("Get failed: " + err.Error()))
			os.Exit(1)
		}
		fmt.Println(okStyle.Render("Fetched " + post.DisplayTitle()))
		fmt.Println(dimStyle.Render(fmt.Sprintf("  category=%v tags=%v status=%s", post.Category, post.Tags, post.Status)))
	}
}
