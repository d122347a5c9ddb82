// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package authz decides which HRMS privilege tiers may manage backups,
// using a Casbin RBAC model. The embedded policy grants the "manage" action
// on "backups" to super_admin only; deployments may point AUTHZ_POLICY_PATH
// at a CSV policy file to grant the permission to other roles.
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/hrmsvault/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Enforcer wraps the Casbin enforcer.
type Enforcer struct {
	enforcer   *casbin.SyncedEnforcer
	policyPath string
}

// NewEnforcer creates an enforcer from the embedded model. When policyPath
// names an existing file it is loaded through the file adapter; otherwise
// the embedded policy is used.
func NewEnforcer(policyPath string) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if policyPath != "" && fileExists(policyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		if policyPath != "" {
			logging.Warn().Str("path", policyPath).Msg("Policy file not found, using embedded policy")
			policyPath = ""
		}
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Enforcer{enforcer: enforcer, policyPath: policyPath}, nil
}

// loadPolicy parses policy CSV lines ("p, sub, obj, act" and "g, user, role").
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		ptype, rule := parts[0], parts[1:]
		switch {
		case ptype == "p" && len(rule) >= 3:
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case ptype == "g" && len(rule) >= 2:
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		}
	}
	return nil
}

// Enforce checks if the subject (a role) can perform the action on the
// object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// AddRoleInheritance makes role inherit every permission of parent.
func (e *Enforcer) AddRoleInheritance(role, parent string) error {
	if _, err := e.enforcer.AddGroupingPolicy(role, parent); err != nil {
		return fmt.Errorf("failed to add grouping policy: %w", err)
	}
	return nil
}

// Reload re-reads the policy file. It is a no-op with the embedded policy.
func (e *Enforcer) Reload() error {
	if e.policyPath == "" {
		return nil
	}
	return e.enforcer.LoadPolicy()
}

// GetPolicy returns all policy rules.
func (e *Enforcer) GetPolicy() [][]string {
	//nolint:errcheck // GetPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
