package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type channelRow struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// channelsCmd prints the channel list of a running server.
func channelsCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List channels of a running relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := fetchChannels(&http.Client{Timeout: 5 * time.Second}, addr)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Channel", "Members"})
			for _, r := range rows {
				table.Append([]string{r.Name, strconv.Itoa(r.Members)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "relay HTTP base URL")
	return cmd
}

func fetchChannels(client *http.Client, base string) ([]channelRow, error) {
	resp, err := client.Get(base + "/api/channels")
	if err != nil {
		return nil, fmt.Errorf("fetch channels: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch channels: unexpected status %s", resp.Status)
	}
	var rows []channelRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	return rows, nil
}
