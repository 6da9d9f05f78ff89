package cmd

import (
	"testing"
)

func TestRootCmd(t *testing.T) {
	root := getRootCmd()
	for _, name := range []string{"serve", "init", "probe", "kinds", "decode"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Fatalf("command %s not found: %v", name, err)
		}
		if name != "init" && c.Flags().Lookup("variant") == nil {
			t.Errorf("%s lacks --variant", name)
		}
	}
	for _, flag := range []string{"port", "interface", "source", "device", "config", "debug"} {
		if ServeCmd.Flags().Lookup(flag) == nil {
			t.Errorf("serve lacks --%s", flag)
		}
	}
	for _, flag := range []string{"print", "yes", "output", "config", "update"} {
		if InitCmd.Flags().Lookup(flag) == nil {
			t.Errorf("init lacks --%s", flag)
		}
	}
	if err := DecodeCmd.Args(DecodeCmd, nil); err == nil {
		t.Error("decode accepted no file")
	}
}
