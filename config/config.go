package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Shop    Shop
	Uploads Uploads
	Email   Email
	Cors    Cors
	Rate    Rate
	Admin   Admin
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:4000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:komugy"`
	DisableTLS bool   `conf:"default:true"`
}

// Shop holds the storefront policy knobs. PaymentAccountName and
// PaymentAccountNumber are the Easypaisa destination shown to the buyer;
// they are display values only and never derived from order data.
type Shop struct {
	PaymentAccountName   string        `conf:"default:Komugy by Narumii"`
	PaymentAccountNumber string        `conf:"default:0300-0000000"`
	PaymentWindow        time.Duration `conf:"default:5m"`
	MaxProofBytes        int64         `conf:"default:5242880"`
}

type Uploads struct {
	Bucket  string `conf:"default:komugy-uploads"`
	Region  string `conf:"default:ap-south-1"`
	BaseURL string `conf:"default:https://komugy-uploads.s3.ap-south-1.amazonaws.com"`
}

type Email struct {
	Host     string `conf:"default:smtp.gmail.com"`
	Port     string `conf:"default:587"`
	Address  string `conf:"default:orders@komugy.shop"`
	Password string `conf:"default:,mask"`

	// NotifyAddress receives the order placed/paid notifications.
	NotifyAddress string `conf:"default:narumii@komugy.shop"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Rate struct {
	Burst  int           `conf:"default:5"`
	Every  time.Duration `conf:"default:10s"`
	Expiry int           `conf:"default:30"`
}

type Admin struct {
	Token string `conf:"default:,mask"`
}
