package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
	"sensorhub/internal/utils"
)

const DefaultAppName = "sensorhub"
const DefaultConfigName = "config"
const DefaultAPIInterface = "0.0.0.0"
const DefaultAPIPort = 18889
const DefaultVariant = "bmi160"
const DefaultSourceType = SourceSerial
const DefaultSourceName = "/dev/ttyUSB0"
const DefaultBaudRate = 115200

const (
	SourceSerial = "serial"
	SourceEvdev  = "evdev"
	SourceReplay = "replay"
)

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config/"+DefaultAppName+"/"+DefaultConfigName+".yaml")
var DefaultCalibration = path.Join(userHomeDir, ".config", DefaultAppName, "calibration.yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"
const DefaultConfigSearchPath3 = "/config"

type APIOpt struct {
	Port      int    `yaml:"port"`
	Interface string `yaml:"interface"`
}

// HubOpt is the build configuration of the sensor hub.
type HubOpt struct {
	Variant     string          `yaml:"variant"`
	Features    sensor.Features `yaml:"features"`
	Calibration string          `yaml:"calibration"`
}

// SourceOpt selects the transport that produces raw hub records.
type SourceOpt struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
	Baud int    `yaml:"baud"`
}

type SensorHubOpt struct {
	API    APIOpt    `yaml:"api"`
	Hub    HubOpt    `yaml:"hub"`
	Source SourceOpt `yaml:"source"`
	Debug  bool      `yaml:"debug"`
}

type SensorHubDesc struct {
	Opt   SensorHubOpt
	Viper *viper.Viper
}

func NewSensorHubDesc() SensorHubDesc {
	return SensorHubDesc{
		Opt:   NewSensorHubOpt(),
		Viper: nil,
	}
}

func NewSensorHubOpt() SensorHubOpt {
	return SensorHubOpt{
		API: APIOpt{
			Port:      DefaultAPIPort,
			Interface: DefaultAPIInterface,
		},
		Hub: HubOpt{
			Variant:     DefaultVariant,
			Features:    sensor.AllFeatures(),
			Calibration: DefaultCalibration,
		},
		Source: SourceOpt{
			Type: DefaultSourceType,
			Name: DefaultSourceName,
			Baud: DefaultBaudRate,
		},
		Debug: false,
	}
}

func (o *SensorHubDesc) Parse(cmd *cobra.Command) error {
	vipCfg := viper.New()
	vipCfg.SetDefault("api.port", DefaultAPIPort)
	vipCfg.SetDefault("api.interface", DefaultAPIInterface)
	vipCfg.SetDefault("hub.variant", DefaultVariant)
	vipCfg.SetDefault("hub.calibration", DefaultCalibration)
	vipCfg.SetDefault("hub.features.gyroscope", true)
	vipCfg.SetDefault("hub.features.magnetometer", true)
	vipCfg.SetDefault("hub.features.chopchop", true)
	vipCfg.SetDefault("hub.features.lift", true)
	vipCfg.SetDefault("hub.features.rearprox", true)
	vipCfg.SetDefault("hub.features.pedometer", true)
	vipCfg.SetDefault("source.type", DefaultSourceType)
	vipCfg.SetDefault("source.name", DefaultSourceName)
	vipCfg.SetDefault("source.baud", DefaultBaudRate)
	vipCfg.SetDefault("debug", false)

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else {
		configFileEnv := os.Getenv("SENSORHUB_CONFIG")
		if configFileEnv != "" {
			vipCfg.SetConfigFile(configFileEnv)
		} else {
			vipCfg.SetConfigName(DefaultConfigName)
			vipCfg.SetConfigType("yaml")
			vipCfg.AddConfigPath(DefaultConfigSearchPath0)
			vipCfg.AddConfigPath(DefaultConfigSearchPath1)
			vipCfg.AddConfigPath(DefaultConfigSearchPath2)
			vipCfg.AddConfigPath(DefaultConfigSearchPath3)
		}
	}

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	bind := func(key, flag string) {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = vipCfg.BindPFlag(key, f)
		}
	}
	bind("api.port", "port")
	bind("api.interface", "interface")
	bind("hub.variant", "variant")
	bind("source.type", "source")
	bind("source.name", "device")
	bind("debug", "debug")

	// If a config file is found, read it in.
	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else {
		log.Warnln(err)
	}

	if err := vipCfg.Unmarshal(&o.Opt); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	o.Viper = vipCfg
	return o.Validate()
}

// Validate rejects option combinations that can never produce a working hub.
func (o *SensorHubDesc) Validate() error {
	v, err := stml0xx.VariantByName(o.Opt.Hub.Variant)
	if err != nil {
		return err
	}
	if err := v.Check(o.Opt.Hub.Features); err != nil {
		return err
	}
	switch o.Opt.Source.Type {
	case SourceSerial, SourceEvdev, SourceReplay:
	default:
		return fmt.Errorf("unknown source type %q", o.Opt.Source.Type)
	}
	return nil
}

func (o *SensorHubDesc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// SaveConfig rewrites the configuration file Parse read with the resolved
// options, so defaults and overrides land in the file.
func (o *SensorHubDesc) SaveConfig() error {
	if o.Viper == nil {
		return errors.New("viper is nil")
	}
	p := o.Viper.ConfigFileUsed()
	if p == "" {
		return errors.New("no configuration file in use")
	}
	s, err := yaml.Marshal(o.Opt)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w := bufio.NewWriter(f)
	if _, err = w.Write(s); err != nil {
		return err
	}
	return w.Flush()
}

// InitCfg writes a configuration template for the application
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")
	updateFlag, _ := cmd.Flags().GetBool("update")

	desc := NewSensorHubDesc()
	err := desc.Parse(cmd)
	if err != nil {
		log.Errorln(err)
		return err
	}

	if updateFlag {
		if err := desc.SaveConfig(); err != nil {
			log.Errorln(err)
			return err
		}
		log.Infoln("updated", desc.Viper.ConfigFileUsed())
		return nil
	}

	if printFlag {
		configBuffer, _ := yaml.Marshal(desc.Opt)
		fmt.Println(string(configBuffer))
	} else {
		utils.DumpOption(desc.Opt, outputPath, overwriteFlag)
	}
	return nil
}
