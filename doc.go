// Package daraja provides a Go client for the Safaricom M-Pesa (Daraja)
// payment gateway, covering authentication, payment operations, and the
// asynchronous callback flow.
//
// # Overview
//
// The gateway exposes REST APIs for customer payments (STK push, C2B),
// disbursements (B2C, B2B), and account operations (balance, status,
// reversal). Every operation is asynchronous: the synchronous response only
// acknowledges that the request was accepted, and the outcome arrives later
// as a callback to a URL you registered. This module handles both halves of
// that flow.
//
// # Packages
//
//   - mpesa: the gateway client with token management, payload construction,
//     and every payment operation.
//   - callback: parsing, validation, deduplication, and dispatch of the
//     gateway's callback notifications.
//   - ratelimit: local and distributed request quotas for outbound calls.
//   - retry: bounded exponential backoff for transient failures.
//
// The infra, handler, router, and cmd directories form a runnable webhook
// service built on these packages.
//
// # Quick Start
//
// Basic usage example:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/sokopay/daraja/mpesa"
//	)
//
//	func main() {
//	    client, err := mpesa.NewClient(mpesa.Config{
//	        ConsumerKey:    "your-consumer-key",
//	        ConsumerSecret: "your-consumer-secret",
//	        ShortCode:      "174379",
//	        Passkey:        "your-passkey",
//	        Environment:    mpesa.EnvSandbox,
//	        CallbackURL:    "https://example.com/webhooks/stk",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    resp, err := client.STKPush(context.Background(), mpesa.STKPushRequest{
//	        PhoneNumber:      "0712345678",
//	        Amount:           100,
//	        AccountReference: "ORDER-001",
//	        Description:      "Order payment",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("queued: %s", resp.CheckoutRequestID)
//	}
//
// The customer then approves or rejects the payment on their phone, and the
// gateway delivers the outcome to the callback URL. The callback package
// turns that delivery into a ParsedCallback with consistent types.
package daraja
