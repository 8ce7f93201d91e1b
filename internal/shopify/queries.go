package shopify

const productFields = `
  id
  title
  handle
  description
  descriptionHtml
  priceRange {
    minVariantPrice {
      amount
      currencyCode
    }
  }
`

const variantFields = `
  id
  title
  availableForSale
  priceV2 {
    amount
    currencyCode
  }
  selectedOptions {
    name
    value
  }
`

const imageFields = `
  url
  altText
  width
  height
`

const cartFields = `
  id
  checkoutUrl
  lines(first: 50) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            title
            priceV2 {
              amount
              currencyCode
            }
          }
        }
      }
    }
  }
  cost {
    totalAmount {
      amount
      currencyCode
    }
  }
`

var allProductsQuery = `
query GetAllProducts {
  products(first: 100) {
    edges {
      node {` + productFields + `
        images(first: 5) { edges { node {` + imageFields + `} } }
        variants(first: 10) { edges { node {` + variantFields + `} } }
      }
    }
  }
}`

var productByHandleQuery = `
query GetProductByHandle($handle: String!) {
  productByHandle(handle: $handle) {` + productFields + `
    images(first: 10) { edges { node {` + imageFields + `} } }
    variants(first: 25) { edges { node {` + variantFields + `} } }
  }
}`

var createCartMutation = `
mutation CreateCart {
  cartCreate {
    cart {` + cartFields + `}
    userErrors {
      field
      message
    }
  }
}`

var addLinesMutation = `
mutation AddToCart($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart {` + cartFields + `}
    userErrors {
      field
      message
    }
  }
}`
