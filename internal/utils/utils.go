package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Confirm asks a yes/no question on in; an empty answer counts as yes.
func Confirm(in io.Reader, s string) bool {
	fmt.Printf("%s [Y/n]: ", s)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		log.Warnln("no answer:", err)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes", "":
		return true
	default:
		return false
	}
}

// DumpOption writes opt as yaml to outputPath, creating a private parent
// directory. Existing files are only replaced after confirmation or with overwrite.
func DumpOption(opt interface{}, outputPath string, overwrite bool) {
	if err := dumpOption(opt, outputPath, overwrite, os.Stdin); err != nil {
		log.Errorln(err)
	}
}

func dumpOption(opt interface{}, outputPath string, overwrite bool, in io.Reader) error {
	buffer, err := yaml.Marshal(opt)
	if err != nil {
		return err
	}

	parentPath := path.Dir(outputPath)
	if err := os.MkdirAll(parentPath, 0700); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", parentPath, err)
	}

	if !overwrite {
		if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
			if !Confirm(in, "configuration "+outputPath+" already exist, overwrite?") {
				log.Infoln("abort")
				return nil
			}
		}
	}

	log.Infoln("writing default configuration to", outputPath)
	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open %s, check permissions: %w", outputPath, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	if _, err = w.Write(buffer); err != nil {
		return fmt.Errorf("cannot write configuration: %w", err)
	}
	return w.Flush()
}
