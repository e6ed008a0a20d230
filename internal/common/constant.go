package common

// AuthorizationHeaderName carries the bearer credential on protected requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only authorization scheme accepted by the API.
const BearerScheme = "Bearer"

// TokenType is reported to clients alongside issued access tokens.
const TokenType = "bearer"
