package domain

import (
	interfaces "bitchat/internal/domain/interfaces"
	types "bitchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerAddress           = types.PeerAddress
	HashID                = types.HashID
	Fingerprint           = types.Fingerprint
	SignedPreKeyID        = types.SignedPreKeyID
	OneTimePreKeyID       = types.OneTimePreKeyID
	RelayUsername         = types.RelayUsername
	Identity              = types.Identity
	Contact               = types.Contact
	VerificationMethod    = types.VerificationMethod
	Message               = types.Message
	DeliveryState         = types.DeliveryState
	DeliveryStatus        = types.DeliveryStatus
	Transport             = types.Transport
	BLEPeer               = types.BLEPeer
	WiFiPeer               = types.WiFiPeer
	RouteDecision         = types.RouteDecision
	OneTimePreKeyPair     = types.OneTimePreKeyPair
	OneTimePreKeyPublic   = types.OneTimePreKeyPublic
	PreKeyBundle          = types.PreKeyBundle
	PreKeyMessage         = types.PreKeyMessage
	RatchetHeader         = types.RatchetHeader
	RatchetState          = types.RatchetState
	RatchetConversation   = types.RatchetConversation
	HandshakeSession      = types.HandshakeSession
	RelayEnvelope         = types.RelayEnvelope
	AccountProfile        = types.AccountProfile
	Config                = types.Config
	WipeResult            = types.WipeResult
	X25519Public          = types.X25519Public
	X25519Private         = types.X25519Private
	Ed25519Public         = types.Ed25519Public
	Ed25519Private        = types.Ed25519Private
)

// Function aliases for the DeliveryStatus constructors and codec.
var (
	Sending                 = types.Sending
	Sent                    = types.Sent
	Delivered               = types.Delivered
	Read                    = types.Read
	Failed                  = types.Failed
	PartiallyDelivered      = types.PartiallyDelivered
	Advances                = types.Advances
	DecodeDeliveryStatus    = types.DecodeDeliveryStatus
	DefaultConfig           = types.DefaultConfig
)

const (
	TransportBLE        = types.TransportBLE
	TransportWiFiDirect = types.TransportWiFiDirect

	VerificationInPerson     = types.VerificationInPerson
	VerificationQR           = types.VerificationQR
	VerificationIntroduction = types.VerificationIntroduction
	VerificationManual       = types.VerificationManual
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	ContactStore          = interfaces.ContactStore
	MessageStore          = interfaces.MessageStore
	DBKeystore            = interfaces.DBKeystore
	IdentityStore         = interfaces.IdentityStore
	AccountStore          = interfaces.AccountStore
	HandshakeEngine       = interfaces.HandshakeEngine
	PreKeyStore           = interfaces.PreKeyStore
	PreKeyBundleStore     = interfaces.PreKeyBundleStore
	HandshakeSessionStore = interfaces.HandshakeSessionStore
	RatchetStore          = interfaces.RatchetStore
	RelayOverlay          = interfaces.RelayOverlay
	Radio                 = interfaces.Radio
	Sender                = interfaces.Sender
	InboundSink           = interfaces.InboundSink
)
