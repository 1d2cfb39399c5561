package assertion

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/beevik/etree"
	"github.com/crewjam/saml/xmlenc"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

var signatureMethods = map[string]string{
	"rsa-sha256": dsig.RSASHA256SignatureMethod,
	"rsa-sha384": dsig.RSASHA384SignatureMethod,
	"rsa-sha512": dsig.RSASHA512SignatureMethod,
}

// Sign adds an enveloped signature over the whole document. The
// signature element is placed directly after the Issuer child as the
// SAML schema requires.
func (ad *Adapter) Sign(a ports.Assertion, opts ports.SignatureOptions) (ports.Assertion, error) {
	d, err := concrete(a)
	if err != nil {
		return nil, err
	}
	if opts.Key == nil || opts.Certificate == nil {
		return nil, domain.ValidationError("signing requires a key and a certificate")
	}

	keyStore := dsig.TLSCertKeyStore(tls.Certificate{
		Certificate: [][]byte{opts.Certificate.Raw},
		PrivateKey:  opts.Key,
	})
	signingContext := dsig.NewDefaultSigningContext(keyStore)
	signingContext.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	if opts.SignatureMethod != "" {
		method, ok := signatureMethods[opts.SignatureMethod]
		if !ok {
			return nil, domain.ValidationError("unsupported signature method: %q", opts.SignatureMethod)
		}
		if err := signingContext.SetSignatureMethod(method); err != nil {
			return nil, domain.ValidationError("unsupported signature method: %q", opts.SignatureMethod)
		}
	}

	signedRoot, err := signingContext.SignEnveloped(d.doc.Root())
	if err != nil {
		return nil, domain.ValidationError("cannot sign assertion document: %v", err)
	}

	// SignEnveloped appends the signature as the last child; the schema
	// wants it right after the Issuer.
	if sig := childByTag(signedRoot, "Signature"); sig != nil {
		if issuerEl := childByTag(signedRoot, "Issuer"); issuerEl != nil {
			// SignEnveloped grafts the signature into the child list
			// without updating its parent pointer, so identity-based
			// RemoveChild would silently do nothing; remove it by its
			// actual position instead.
			for i, child := range signedRoot.Child {
				if child == sig {
					signedRoot.RemoveChildAt(i)
					break
				}
			}
			signedRoot.InsertChildAt(issuerEl.Index()+1, sig)
		}
	}

	signedDoc := etree.NewDocument()
	signedDoc.SetRoot(signedRoot)
	return &Document{doc: signedDoc}, nil
}

// VerifySignature validates the enveloped signature against the trust
// anchor. On success the document is replaced with the validated
// element so later reads cannot see unsigned content smuggled in next
// to the signed subtree.
func (ad *Adapter) VerifySignature(a ports.Assertion, cert *x509.Certificate) error {
	d, err := concrete(a)
	if err != nil {
		return err
	}
	if cert == nil {
		return domain.ValidationError("verification requires a trust anchor certificate")
	}
	validationContext := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	validated, err := validationContext.Validate(d.doc.Root())
	if err != nil {
		return domain.SecurityError("invalid assertion signature: %v", err)
	}
	validatedDoc := etree.NewDocument()
	validatedDoc.SetRoot(validated)
	d.doc = validatedDoc
	return nil
}

// Encrypt replaces the Assertion child with an EncryptedAssertion
// addressed to the recipient certificate. Documents without an
// assertion, such as failure responses, pass through unchanged.
func (ad *Adapter) Encrypt(a ports.Assertion, opts ports.EncryptionOptions) (ports.Assertion, error) {
	d, err := concrete(a)
	if err != nil {
		return nil, err
	}
	if opts.Certificate == nil {
		return nil, domain.ValidationError("encryption requires a recipient certificate")
	}
	root := d.doc.Root()
	assertionEl := childByTag(root, "Assertion")
	if assertionEl == nil {
		return d, nil
	}

	plainDoc := etree.NewDocument()
	plainDoc.SetRoot(assertionEl.Copy())
	plaintext, err := plainDoc.WriteToBytes()
	if err != nil {
		return nil, domain.ValidationError("cannot serialize assertion for encryption: %v", err)
	}

	encryptor := xmlenc.OAEP()
	encryptor.BlockCipher = xmlenc.AES128CBC
	encryptor.DigestMethod = &xmlenc.SHA1
	encryptedData, err := encryptor.Encrypt(opts.Certificate, plaintext, nil)
	if err != nil {
		return nil, domain.ValidationError("cannot encrypt assertion: %v", err)
	}
	encryptedData.CreateAttr("Type", encryptedElementType)

	encrypted := etree.NewElement("saml2:EncryptedAssertion")
	encrypted.CreateAttr("xmlns:saml2", assertionNamespace)
	encrypted.AddChild(encryptedData)

	index := assertionEl.Index()
	root.RemoveChild(assertionEl)
	root.InsertChildAt(index, encrypted)
	return d, nil
}

var _ ports.AssertionAdapter = (*Adapter)(nil)
