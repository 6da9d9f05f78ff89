package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sensorhub/internal/sensor"
)

func newCmd(t *testing.T, body string, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Int64P("port", "p", DefaultAPIPort, "")
	cmd.Flags().String("variant", DefaultVariant, "")
	cmd.Flags().Bool("debug", false, "")
	if body != "" {
		p := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(p, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
		args = append(args, "--config", p)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestParseFile(t *testing.T) {
	body := `
api:
  port: 9000
hub:
  variant: kxcj9
  features:
    gyroscope: false
    pedometer: false
source:
  type: replay
  name: /tmp/events.jsonl
`
	desc := NewSensorHubDesc()
	if err := desc.Parse(newCmd(t, body)); err != nil {
		t.Fatal(err)
	}
	o := desc.Opt
	if o.API.Port != 9000 || o.API.Interface != DefaultAPIInterface {
		t.Fatalf("api = %+v", o.API)
	}
	if o.Hub.Variant != "kxcj9" || o.Hub.Features.Gyroscope || o.Hub.Features.Pedometer || !o.Hub.Features.Magnetometer {
		t.Fatalf("hub = %+v", o.Hub)
	}
	if o.Source.Type != SourceReplay || o.Source.Name != "/tmp/events.jsonl" || o.Source.Baud != DefaultBaudRate {
		t.Fatalf("source = %+v", o.Source)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	body := "api:\n  port: 9000\nhub:\n  variant: kxcj9\n  features:\n    gyroscope: false\n"
	desc := NewSensorHubDesc()
	if err := desc.Parse(newCmd(t, body, "--port", "9100", "--debug")); err != nil {
		t.Fatal(err)
	}
	if desc.Opt.API.Port != 9100 || !desc.Opt.Debug {
		t.Fatalf("opt = %+v", desc.Opt)
	}
}

func TestVariantWithoutGyroscope(t *testing.T) {
	// kxcj9 cannot serve the default feature set, which includes the gyroscope.
	desc := NewSensorHubDesc()
	err := desc.Parse(newCmd(t, "hub:\n  variant: kxcj9\n"))
	if !errors.Is(err, sensor.ErrVariantMismatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownVariantAndSource(t *testing.T) {
	desc := NewSensorHubDesc()
	if err := desc.Parse(newCmd(t, "hub:\n  variant: lsm6dsl\n")); !errors.Is(err, sensor.ErrVariantMismatch) {
		t.Fatalf("variant err = %v", err)
	}
	desc = NewSensorHubDesc()
	if err := desc.Parse(newCmd(t, "source:\n  type: spi\n")); err == nil {
		t.Fatal("expected source error")
	}
}

func TestInitUpdate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("api:\n  port: 9000\nsource:\n  type: replay\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cmd := &cobra.Command{Use: "init"}
	cmd.Flags().Bool("print", false, "")
	cmd.Flags().Bool("yes", false, "")
	cmd.Flags().String("output", filepath.Join(t.TempDir(), "unused.yaml"), "")
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("update", false, "")
	if err := cmd.ParseFlags([]string{"--update", "--config", p}); err != nil {
		t.Fatal(err)
	}
	if err := InitCfg(cmd, nil); err != nil {
		t.Fatal(err)
	}

	body, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "baud: 115200") || !strings.Contains(string(body), "rearprox: true") {
		t.Fatalf("defaults not written:\n%s", body)
	}
	desc := NewSensorHubDesc()
	if err := desc.Parse(newCmd(t, string(body))); err != nil {
		t.Fatal(err)
	}
	if desc.Opt.API.Port != 9000 || desc.Opt.Source.Type != SourceReplay || desc.Opt.Hub.Variant != DefaultVariant {
		t.Fatalf("opt = %+v", desc.Opt)
	}
}

func TestSaveConfigWithoutFile(t *testing.T) {
	desc := NewSensorHubDesc()
	if err := desc.SaveConfig(); err == nil {
		t.Fatal("expected error without a parsed config")
	}
	desc.Viper = viper.New()
	if err := desc.SaveConfig(); err == nil {
		t.Fatal("expected error without a config file")
	}
}
