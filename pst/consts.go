package pst

// Well-known property tags read directly by the object model, per spec
// §4.12. These are ordinary MAPI prop ids, not named properties, so no
// nameid lookup is needed to resolve them.
const (
	propDisplayName        = 0x3001 // folder/store display name; recipient name
	propContentCount       = 0x3602 // folder message count
	propSubfolderCount     = 0x3603 // folder subfolder count
	propAssocContentCount  = 0x3617 // folder associated-content count
	propSubject            = 0x0037
	propBody               = 0x1000
	propBodyHTML           = 0x1013
	propMessageSize        = 0x0e08
	propAttachLongFilename = 0x3707
	propAttachFilename     = 0x3704
	propAttachData         = 0x3701
	propAttachSize         = 0x0e20
	propAttachMethod       = 0x3705
	propRecipientType      = 0x0c15
	propAddressType        = 0x3002
	propEmailAddress       = 0x39fe
	propAccountName        = 0x3a00
)

// attachMethodEmbeddedMessage is the PR_ATTACH_METHOD value marking an
// attachment whose content is itself a message rather than raw bytes.
const attachMethodEmbeddedMessage = 5
