package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sensorhub/internal/sensor"
)

var defaultTableValue = [][]string{{"Handle", "Sensor", "Value", "Timestamp"}}

func getTable() *widgets.Table {
	table := widgets.NewTable()
	table.Rows = defaultTableValue
	table.ColumnWidths = []int{8, 26, 40, 20}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.TextAlignment = ui.AlignRight
	table.SetRect(0, 0, 96, 30)
	return table
}

func printVec(v sensor.Vec3) string {
	return fmt.Sprintf("%.2f, %.2f, %.2f", v.X, v.Y, v.Z)
}

// formatValue renders the member of r that its shape carries.
func formatValue(r sensor.Reading) string {
	switch r.Shape {
	case sensor.ShapeVector:
		return printVec(r.Vector)
	case sensor.ShapeUncalibrated:
		return printVec(r.Vector) + " b " + printVec(r.Bias)
	case sensor.ShapeQuaternion:
		return fmt.Sprintf("%.3f, %.3f, %.3f, %.3f", r.Quat.X, r.Quat.Y, r.Quat.Z, r.Quat.W)
	case sensor.ShapeScalar:
		if r.NoData {
			return "no data"
		}
		return fmt.Sprintf("%.1f", r.Scalar)
	case sensor.ShapeState:
		if r.State == sensor.StateFired && r.Payload != 0 {
			return fmt.Sprintf("%s (%d)", r.State, r.Payload)
		}
		return r.State.String()
	}
	return ""
}

func tableRows(readings []sensor.Reading) [][]string {
	rows := make([][]string, 0, len(readings)+1)
	rows = append(rows, defaultTableValue[0])
	for _, r := range readings {
		rows = append(rows, []string{fmt.Sprintf("%d", r.Handle), r.Kind.String(), formatValue(r), fmt.Sprintf("%d", r.Timestamp)})
	}
	return rows
}

func fetchReadings(client *http.Client, address string) ([]sensor.Reading, error) {
	resp, err := client.Get("http://" + address + "/api/v1/readings")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var body struct {
		Readings []sensor.Reading `json:"readings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Readings, nil
}

func updateValue(address string, interval time.Duration, table *widgets.Table) {
	client := &http.Client{Timeout: 2 * time.Second}
	for {
		readings, err := fetchReadings(client, address)
		if err != nil {
			log.Debugln(err)
		} else {
			table.Rows = tableRows(readings)
			ui.Render(table)
		}
		time.Sleep(interval)
	}
}

func _main(cmd *cobra.Command, args []string) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("Starting")
	if err := ui.Init(); err != nil {
		log.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()

	t := getTable()
	address, _ := cmd.Flags().GetString("address")
	interval, _ := cmd.Flags().GetDuration("interval")
	go updateValue(address, interval, t)

	uiEvents := ui.PollEvents()
	for {
		e := <-uiEvents
		switch e.ID {
		case "q", "<C-c>":
			return
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "hub_monitor",
	Short: "show the latest reading of every hub sensor",
	Long:  "hub_monitor polls a running hubd and shows the latest calibrated reading of every sensor",
	Run: func(cmd *cobra.Command, args []string) {
		_main(cmd, args)
	},
}

func main() {
	rootCmd.Flags().String("address", "127.0.0.1:18889", "address of the hubd api")
	rootCmd.Flags().Duration("interval", 100*time.Millisecond, "refresh interval")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	err := rootCmd.Execute()
	if err != nil {
		return
	}
}
