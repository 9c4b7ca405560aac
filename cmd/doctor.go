package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"boq/internal/config"
	"boq/internal/creds"
	"boq/internal/gateway"
	"boq/internal/models"
	"boq/internal/queue"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Run diagnostic checks for the submission setup",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		runDoctor(cmd.Context())
		return nil
	},
}

func runDoctor(ctx context.Context) {
	// 1. Config dir
	dir, err := config.Dir()
	dirOK := err == nil
	if dirOK {
		fmt.Printf("Config dir ............. OK (%s)\n", dir)
	} else {
		fmt.Printf("Config dir ............. FAIL (%v)\n", err)
	}

	// 2. Credentials
	c, err := creds.Load()
	credsOK := creds.Available()
	switch {
	case credsOK && c != nil && c.Email != "":
		fmt.Printf("Credentials ............ OK (%s)\n", c.Email)
	case credsOK:
		fmt.Printf("Credentials ............ OK\n")
	case err != nil:
		fmt.Printf("Credentials ............ FAIL (%v)\n", err)
	default:
		fmt.Printf("Credentials ............ FAIL (not logged in)\n")
	}

	// 3. Server reachable
	serverURL := config.GetServerURL()
	serverOK := false
	if _, err := gateway.New(serverURL, "").HealthCheck(ctx); err == nil {
		serverOK = true
		fmt.Printf("Server reachable ....... OK (%s)\n", serverURL)
	} else {
		fmt.Printf("Server reachable ....... FAIL (%v)\n", err)
	}

	// 4. Credential valid
	if !credsOK || !serverOK {
		fmt.Printf("Credential valid ....... SKIP\n")
	} else {
		_, err := gateway.New(serverURL, creds.Token()).ListShops(ctx)
		if err == nil {
			fmt.Printf("Credential valid ....... OK\n")
		} else if errors.Is(err, gateway.ErrUnauthorized) {
			fmt.Printf("Credential valid ....... FAIL (invalid or expired token)\n")
		} else {
			fmt.Printf("Credential valid ....... FAIL (%v)\n", err)
		}
	}

	// 5. Queue database
	if !dirOK {
		fmt.Printf("Queue database ......... SKIP\n")
		fmt.Printf("Queued submissions ..... SKIP\n")
		return
	}
	store, err := queue.Open(dir)
	if err != nil {
		fmt.Printf("Queue database ......... FAIL (%v)\n", err)
		fmt.Printf("Queued submissions ..... SKIP\n")
		return
	}
	defer store.Close()
	fmt.Printf("Queue database ......... OK\n")

	// 6. Queued submissions
	counts, err := store.CountByKind(ctx)
	if err != nil {
		fmt.Printf("Queued submissions ..... FAIL (%v)\n", err)
	} else if len(counts) == 0 {
		fmt.Printf("Queued submissions ..... 0\n")
	} else {
		fmt.Printf("Queued submissions ..... %d shops, %d materials\n",
			counts[models.KindShop], counts[models.KindMaterial])
	}
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
