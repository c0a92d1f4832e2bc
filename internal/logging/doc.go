// Package logger provides leveled, colored logging for Clerk.
//
// A Logger is a small value configured from the --verbose and --debug
// flags. It is passed by value into the vault, store and workflow layers
// through their Options structs, so library code never reads flags.
//
//	Infof        --verbose or --debug, stdout
//	Debugf       --debug only, stdout
//	Warnf        --verbose or --debug, stderr
//	WarnfAlways  always, stderr
//	WarnfUser    always, stderr, without the [warn] prefix
//	Errorf       --debug only, stderr
//
// Out and Err redirect the two streams. The cmd package points them at the
// cobra command's writers so tests can capture output.
//
// Secret values and master passwords are never passed to a Logger.
package logger
