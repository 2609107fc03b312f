package carrier

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/crypto/pkcs12"
)

const (
	nsDS            = "http://www.w3.org/2000/09/xmldsig#"
	algC14N         = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	algRSASHA256    = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	algSHA256       = "http://www.w3.org/2001/04/xmlenc#sha256"
	transformEnvSig = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// LoadP12 certificado y llave desde .p12/.pfx (mTLS y firma del canal XML).
func LoadP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	return tls.Certificate{Certificate: [][]byte{cert.Raw}, PrivateKey: priv, Leaf: cert}, nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// signEnveloped agrega una firma XMLDSig envolvente (RSA-SHA256) como último hijo de la raíz.
func signEnveloped(doc *etree.Document, cert tls.Certificate) error {
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("firma: el certificado debe incluir llave privada RSA")
	}
	x509Cert := cert.Leaf
	if x509Cert == nil {
		var err error
		if x509Cert, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return fmt.Errorf("firma: parsear certificado: %w", err)
		}
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("firma: documento sin raíz")
	}

	// solo la raíz: la declaración XML no forma parte del digest
	bare := etree.NewDocument()
	bare.SetRoot(root.Copy())
	raw, err := bare.WriteToBytes()
	if err != nil {
		return err
	}
	canonical, err := canonicalize(raw)
	if err != nil {
		canonical = raw
	}
	digest := sha256.Sum256(canonical)

	signedInfo := buildSignedInfo("#"+root.SelectAttrValue("Id", ""), base64.StdEncoding.EncodeToString(digest[:]))
	siDoc := etree.NewDocument()
	siDoc.SetRoot(signedInfo)
	siBytes, err := siDoc.WriteToBytes()
	if err != nil {
		return err
	}
	siCanonical, err := canonicalize(siBytes)
	if err != nil {
		siCanonical = siBytes
	}
	h := sha256.Sum256(siCanonical)
	sigValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, h[:])
	if err != nil {
		return fmt.Errorf("firma: RSA: %w", err)
	}

	sig := etree.NewElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", nsDS)
	sig.AddChild(signedInfo)
	sig.CreateElement("ds:SignatureValue").SetText(base64.StdEncoding.EncodeToString(sigValue))
	sig.CreateElement("ds:KeyInfo").CreateElement("ds:X509Data").
		CreateElement("ds:X509Certificate").SetText(base64.StdEncoding.EncodeToString(x509Cert.Raw))
	root.AddChild(sig)
	return nil
}

func buildSignedInfo(uri, digestB64 string) *etree.Element {
	si := etree.NewElement("ds:SignedInfo")
	si.CreateAttr("xmlns:ds", nsDS)
	si.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", algC14N)
	si.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", algRSASHA256)
	ref := si.CreateElement("ds:Reference")
	ref.CreateAttr("URI", uri)
	tr := ref.CreateElement("ds:Transforms")
	tr.CreateElement("ds:Transform").CreateAttr("Algorithm", transformEnvSig)
	tr.CreateElement("ds:Transform").CreateAttr("Algorithm", algC14N)
	ref.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", algSHA256)
	ref.CreateElement("ds:DigestValue").SetText(digestB64)
	return si
}
