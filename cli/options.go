package cli

// Options defines global flags and commands
type Options struct {
	Config   string `short:"c" long:"config" description:"config file, defaults to $BROKERAGE_CONFIG or ./brokerage.yaml"`
	API      string `short:"a" long:"api" description:"API base URL, e.g. https://broker.example.com/api/"`
	Store    string `long:"store" description:"credential store" choice:"memory" choice:"file" choice:"secret"`
	StoreURL string `long:"store-url" description:"credential store location"`
	StoreKey string `long:"store-key" description:"credential encryption key, e.g. blowfish://default"`
	LogLevel string `short:"l" long:"log-level" description:"log level" choice:"debug" choice:"info" choice:"warn" choice:"error"`

	Login         LoginCommand         `command:"login" description:"sign in and store tokens"`
	Register      RegisterCommand      `command:"register" description:"create an account and store tokens"`
	Logout        struct{}             `command:"logout" description:"forget stored tokens"`
	WhoAmI        struct{}             `command:"whoami" description:"show signed in user and role"`
	Token         TokenCommand         `command:"token" description:"show stored access token"`
	Profile       struct{}             `command:"profile" description:"show profile"`
	UpdateProfile UpdateProfileCommand `command:"update-profile" description:"update profile fields"`
	Orders        struct{}             `command:"orders" description:"list registered orders"`
	Order         OrderCommand         `command:"order" description:"show registered order"`
	CreateOrder   FileCommand          `command:"create-order" description:"register an order from a JSON file"`
	DeleteOrder   OrderCommand         `command:"delete-order" description:"delete registered order"`
	VerifyOrder   VerifyCommand        `command:"verify-order" description:"publish or withdraw an order (admin)"`
	Market        MarketCommand        `command:"market" description:"browse marketplace"`
	MarketOrder   OrderCommand         `command:"market-order" description:"show marketplace order"`
	HSCodes       HSCodesCommand       `command:"hscodes" description:"search hs codes"`
	Import        ImportCommand        `command:"import" description:"import tariff spreadsheet (admin)"`
	Mock          MockCommand          `command:"mock" description:"run mock API server"`
	Version       struct{}             `command:"version" description:"print version"`
}

type LoginCommand struct {
	Username string `short:"u" long:"username" description:"username" required:"true"`
	Password string `short:"p" long:"password" description:"password, defaults to $BROKERAGE_PASSWORD"`
}

type RegisterCommand struct {
	Username  string `short:"u" long:"username" description:"username" required:"true"`
	Password  string `short:"p" long:"password" description:"password" required:"true"`
	Password2 string `long:"password2" description:"password confirmation, defaults to password"`
	Email     string `long:"email" description:"email"`
	FirstName string `long:"first-name" description:"first name"`
	LastName  string `long:"last-name" description:"last name"`
	Phone     string `long:"phone" description:"phone"`
}

type TokenCommand struct {
	Refresh bool `short:"r" long:"refresh" description:"refresh access token first"`
}

type UpdateProfileCommand struct {
	FirstName string `long:"first-name" description:"first name"`
	LastName  string `long:"last-name" description:"last name"`
	Email     string `long:"email" description:"email"`
	Phone     string `long:"phone" description:"phone"`
}

type OrderCommand struct {
	ID string `short:"i" long:"id" description:"order uuid" required:"true"`
}

type FileCommand struct {
	File string `short:"f" long:"file" description:"file URL or path" required:"true"`
}

type VerifyCommand struct {
	OrderCommand
	Withdraw bool `long:"withdraw" description:"mark as not verified"`
}

type MarketCommand struct {
	Query            string   `short:"q" long:"query" description:"order number, goods or hs code terms"`
	TotalValueMin    float64  `long:"min" description:"minimum total value"`
	TotalValueMax    float64  `long:"max" description:"maximum total value"`
	SellerCountry    string   `long:"seller-country" description:"seller country"`
	CurrencyType     string   `long:"currency" description:"currency"`
	TermsOfDelivery  string   `long:"delivery" description:"terms of delivery"`
	TermsOfPayment   string   `long:"payment" description:"terms of payment"`
	MeansOfTransport string   `long:"transport" description:"means of transport"`
	Standard         string   `long:"standard" description:"standard"`
	CountryOfOrigin  string   `long:"origin" description:"country of origin"`
	Partial          string   `long:"partial" description:"partial shipment" choice:"true" choice:"false"`
	HSCodes          []string `long:"hs-code" description:"hs code, repeatable"`
}

type HSCodesCommand struct {
	Query string `short:"q" long:"query" description:"code or goods name"`
	ID    int    `short:"i" long:"id" description:"show hs code details"`
}

type ImportCommand struct {
	FileCommand
	Target string `short:"t" long:"target" description:"import target" choice:"seasons" choice:"headings" choice:"hscodes" required:"true"`
	DryRun bool   `long:"dry-run" description:"validate without saving"`
}

type MockCommand struct {
	Addr     string `long:"addr" description:"listen address" default:"127.0.0.1:8000"`
	Username string `short:"u" long:"username" description:"seeded user" default:"demo"`
	Password string `short:"p" long:"password" description:"seeded users password" default:"password123"`
	Admin    string `long:"admin" description:"seeded admin" default:"admin"`
	Rotate   bool   `long:"rotate" description:"rotate refresh tokens"`
}
