package core

// PublicationKind is the variant tag of a challenged publication
type PublicationKind string

const (
	KindComment           PublicationKind = "comment"
	KindVote              PublicationKind = "vote"
	KindCommentEdit       PublicationKind = "commentEdit"
	KindCommentModeration PublicationKind = "commentModeration"
	KindSubplebbitEdit    PublicationKind = "subplebbitEdit"
)

// SignatureTypeEIP191 is the only wallet signature scheme accepted
const SignatureTypeEIP191 = "eip191"

// WalletSignature is the signature part of a wallet claim
type WalletSignature struct {
	Signature        string   `json:"signature"` // 0x-prefixed hex
	PublicKey        string   `json:"publicKey,omitempty"`
	Type             string   `json:"type"`
	SignedFieldNames []string `json:"signedPropertyNames"`
}

// WalletClaim asserts that a wallet belongs to an author as of Timestamp
type WalletClaim struct {
	Address   string          `json:"address"`
	Timestamp int64           `json:"timestamp"` // unix seconds
	Signature WalletSignature `json:"signature"`
}

// Author is the pseudonymous identity embedded in a publication
type Author struct {
	Address string                 `json:"address"`
	Wallets map[string]WalletClaim `json:"wallets,omitempty"` // keyed by chain ticker
}

// Wallet returns the claim declared for a chain ticker, if any
func (a Author) Wallet(chainTicker string) (WalletClaim, bool) {
	claim, ok := a.Wallets[chainTicker]
	return claim, ok
}

// Publication is implemented by every publication variant that can be challenged
type Publication interface {
	Kind() PublicationKind
	AuthorIdentity() Author
	Community() string
}

// PublicationBase holds the fields every publication shares
type PublicationBase struct {
	Author            Author `json:"author"`
	SubplebbitAddress string `json:"subplebbitAddress"`
	Timestamp         int64  `json:"timestamp"`
}

func (p PublicationBase) AuthorIdentity() Author { return p.Author }
func (p PublicationBase) Community() string      { return p.SubplebbitAddress }

type Comment struct {
	PublicationBase
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	Link      string `json:"link,omitempty"`
	ParentCID string `json:"parentCid,omitempty"`
}

func (Comment) Kind() PublicationKind { return KindComment }

type Vote struct {
	PublicationBase
	CommentCID string `json:"commentCid"`
	Vote       int    `json:"vote"`
}

func (Vote) Kind() PublicationKind { return KindVote }

type CommentEdit struct {
	PublicationBase
	CommentCID string `json:"commentCid"`
	Content    string `json:"content,omitempty"`
	Deleted    bool   `json:"deleted,omitempty"`
}

func (CommentEdit) Kind() PublicationKind { return KindCommentEdit }

type CommentModeration struct {
	PublicationBase
	CommentCID string         `json:"commentCid"`
	Moderation map[string]any `json:"commentModeration,omitempty"`
}

func (CommentModeration) Kind() PublicationKind { return KindCommentModeration }

type SubplebbitEdit struct {
	PublicationBase
	Edit map[string]any `json:"subplebbitEdit,omitempty"`
}

func (SubplebbitEdit) Kind() PublicationKind { return KindSubplebbitEdit }

// ChallengeRequest is the request delivered by the publishing transport.
// Exactly one publication variant is set.
type ChallengeRequest struct {
	Comment           *Comment           `json:"comment,omitempty"`
	Vote              *Vote              `json:"vote,omitempty"`
	CommentEdit       *CommentEdit       `json:"commentEdit,omitempty"`
	CommentModeration *CommentModeration `json:"commentModeration,omitempty"`
	SubplebbitEdit    *SubplebbitEdit    `json:"subplebbitEdit,omitempty"`
}

// Publication returns the single publication carried by the request
func (r ChallengeRequest) Publication() (Publication, error) {
	var found []Publication
	if r.Comment != nil {
		found = append(found, *r.Comment)
	}
	if r.Vote != nil {
		found = append(found, *r.Vote)
	}
	if r.CommentEdit != nil {
		found = append(found, *r.CommentEdit)
	}
	if r.CommentModeration != nil {
		found = append(found, *r.CommentModeration)
	}
	if r.SubplebbitEdit != nil {
		found = append(found, *r.SubplebbitEdit)
	}
	if len(found) != 1 {
		return nil, NewVerificationError(ErrInvalidRequest, MsgInvalidRequest, nil)
	}
	return found[0], nil
}
