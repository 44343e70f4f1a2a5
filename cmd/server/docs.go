// Package main Payments API
//
//	@title						Payments API
//	@version					1.0
//	@description				支付生命周期服务：银行卡、跳转钱包与异步通知钱包
//
//	@contact.name				UniEdit Support
//	@contact.url				https://uniedit.io/support
//	@contact.email				support@uniedit.io
//
//	@license.name				Proprietary
//	@license.url				https://uniedit.io/license
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Payment
//	@tag.description			支付接口
//
//	@tag.name					Webhook
//	@tag.description			支付网关回调接口
//
//	@tag.name					Account
//	@tag.description			账户额度接口
package main
