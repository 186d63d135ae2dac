package main

import (
	"testing"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
)

func credentialConfig() *config.Config {
	return &config.Config{Auth: config.AuthConfig{
		AccessTokenSecret: "abcdefghijklmnopqrstuvwxyz123456",
		AccessTokenTTL:    time.Hour,
	}}
}

func TestIssueTokenRequiresUser(t *testing.T) {
	handled, err := runCredentialCommand(credentialConfig(), options{IssueTokenRole: middleware.RoleEditor})
	if !handled || err == nil {
		t.Fatalf("expected token without user id to be rejected, handled=%v err=%v", handled, err)
	}
}

func TestIssueTokenUnknownRole(t *testing.T) {
	handled, err := runCredentialCommand(credentialConfig(), options{IssueTokenRole: "owner", IssueTokenUser: 3})
	if !handled || err == nil {
		t.Fatalf("expected unknown role to be rejected, handled=%v err=%v", handled, err)
	}
}

func TestNoCredentialCommand(t *testing.T) {
	handled, err := runCredentialCommand(credentialConfig(), options{})
	if handled || err != nil {
		t.Fatalf("expected no command to run, handled=%v err=%v", handled, err)
	}
}
