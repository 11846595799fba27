// Package config provides configuration management for the autopublisher.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("autopublish.yaml")
//
// # Environment Variable Overrides
//
// Environment variables use the prefix AUTOPUBLISH_ followed by the section
// and field name, for example:
//
//   - AUTOPUBLISH_AUTOPUBLISH_DRY_RUN overrides autopublish.dry_run
//   - AUTOPUBLISH_AUTOPUBLISH_EMAIL_LOG overrides autopublish.email_log (comma separated)
//   - AUTOPUBLISH_MAIL_PASSWORD overrides mail.password
//   - AUTOPUBLISH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Action rules can only be configured in the file.
//
// # Registry
//
// The process-wide configuration is held by a singleton. The autopublisher
// reads a fresh snapshot from it at the start of every scan, so a reload
// (ReloadConfig, or the file Watcher) takes effect on the next tick:
//
//	if err := config.Initialize("autopublish.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// # Example Configuration
//
//	autopublish:
//	  schedule: "*/5 * * * *"
//	  dry_run: false
//	  email_log: ["webmaster@example.org"]
//	  overwrite_expiration_on_retract: false
//	  publish_actions:
//	    - portal_types: ["Document", "News Item"]
//	      initial_state: private
//	      transition: publish
//	  retract_actions:
//	    - portal_types: ["Document", "News Item"]
//	      initial_state: [published, pending]
//	      transition: retract
//
//	catalog:
//	  backend: sqlite
//	  sqlite:
//	    path: data/catalog.db
//
//	mail:
//	  host: smtp.example.org
//	  port: 587
//	  from: portal@example.org
package config
