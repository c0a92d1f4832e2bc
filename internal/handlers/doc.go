// Package handlers exposes the vault to a desktop frontend.
//
// Every handler returns a Response envelope instead of an error so the
// frontend can show Message directly. The App keeps one vault open for the
// life of the process and runs a cron job that locks it after the
// configured idle timeout:
//
//	app, err := handlers.New(handlers.Options{Config: cfg})
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//	_ = app.StartIdleLock()
//
//	resp := app.UnlockVault(ctx, password, false)
package handlers
