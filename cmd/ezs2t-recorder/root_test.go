package main

import (
	"strings"
	"testing"
)

// The selector may fall back to a stereo configuration, so help text must not promise mono
func TestRootHelpChannelLayout(t *testing.T) {
	if strings.Contains(rootCmd.Long, "mono") {
		t.Errorf("Root help promises a channel layout: %q", rootCmd.Long)
	}
}
