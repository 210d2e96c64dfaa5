package main

import (
	"context"

	"github.com/krishignan/krishignan/internal/app"
)

// @title           KrishiGnan API
// @version         1.0
// @description     Password recovery for KrishiGnan accounts: request a code, verify it, set a new password.
// @contact.name    KrishiGnan Support
// @contact.email   support@krishignan.in
// @server          http://localhost:8080
func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout())
	defer cancel()

	a.Stop(ctx)
}
